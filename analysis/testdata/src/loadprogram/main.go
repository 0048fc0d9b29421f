package main

func add(a, b int) int {
	return a + b
}

func main() {
	x := add(1, 2)
	println(x)
}
