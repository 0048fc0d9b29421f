package main

func rec(n int) {
	if n > 0 {
		rec(n - 1)
	}
}

func main() {
	rec(3)
}
