package main

func worker(done *bool) {
	*done = true
}

func threadCreate(handle *bool, entry func(*bool)) {}

func threadJoin(handle *bool) {}

func main() {
	var done1, done2 bool
	threadCreate(&done1, worker)
	threadJoin(&done2)
}
