package main

type Greeter interface {
	Greet(name string) string
}

type formalGreeter struct{}

func (formalGreeter) Greet(name string) string {
	return "Good day, " + name
}

func add(a, b int) int {
	return a + b
}

func callThroughInterface(g Greeter, name string) string {
	return g.Greet(name)
}

var lastSum int

func main() {
	sum := add(1, 2)
	lastSum = sum
	var g Greeter = formalGreeter{}
	greeting := callThroughInterface(g, "world")
	println(sum, greeting)
}
