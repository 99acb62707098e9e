package main

import (
	"homesearch/cmd/handlers"
	"homesearch/internal/logger"
)

func main() {
	logger.Init()
	handlers.Execute()
}
