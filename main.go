package main

import "github.com/thirtytwobits/the-cmake-preset-matrix/cmd"

func main() {
	cmd.Execute()
}
