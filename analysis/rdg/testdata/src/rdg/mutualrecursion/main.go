package main

func f() { g() }

func g() { f() }

func main() {
	f()
}
