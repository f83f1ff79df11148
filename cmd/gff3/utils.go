package main

import (
	"log"
	"os"
)

func raiseError(err error) {
	if err != nil {
		if *debug {
			log.Panic(err)
		} else {
			log.Fatalln(err)
		}
	}
}

func openFile(filename string) *os.File {
	if filename == "-" {
		return os.Stdin
	}
	f, err := os.Open(filename)
	raiseError(err)
	return f
}
