package main

import (
	"os"

	"github.com/senma231/checkprice-sub001/app"
)

func main() {
	err := app.Execute()
	if err != nil {
		os.Exit(1)
	}
}
