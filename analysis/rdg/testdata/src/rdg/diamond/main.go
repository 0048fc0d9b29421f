package main

func cond(x int) int {
	var y int
	if x > 0 {
		y = 1
	} else {
		y = 2
	}
	return y
}

func main() {
	_ = cond(1)
}
