package main

import (
	"fmt"
	"os"
)

func main() {
	fmt.Println("starting")
	os.Exit(1) // want "avoid direct os.Exit call in main.main, return from main instead"
}

func helper() {
	os.Exit(2)
}
