package main

var p = new(int)

func g() {
	*p = 1
	*p = 2
}

func main() {
	g()
}
