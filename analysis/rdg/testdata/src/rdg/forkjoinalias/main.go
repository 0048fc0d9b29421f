package main

func worker(done *bool) {
	*done = true
}

func threadCreate(handle *bool, entry func(*bool)) {}

func threadJoin(handle *bool) {}

func main() {
	var done bool
	threadCreate(&done, worker)
	threadJoin(&done)
}
