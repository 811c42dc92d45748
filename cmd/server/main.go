package main

import (
	"log"
	"os"

	"quizroom/internal/server"
)

func main() {
	if err := server.Run(os.Args[1:]); err != nil {
		log.Fatal(err.Error())
	}
}
