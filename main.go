/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package main

import "github.com/pkgtree/pkgtree/cmd"

func main() {
	cmd.Execute()
}
