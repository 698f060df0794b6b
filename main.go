/*
Copyright © 2026 NAME HERE <EMAIL ADDRESS>
*/
package main

import "hugbridge/cmd"

func main() {
	cmd.Execute()
}
