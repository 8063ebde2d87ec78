// Stitch CLI - compose long screenshots from scroll capture frames
package main

func main() {
	Execute()
}
