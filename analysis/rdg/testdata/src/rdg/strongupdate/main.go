package main

func f() int {
	var x int
	x = 1
	x = 2
	return x
}

func main() {
	_ = f()
}
