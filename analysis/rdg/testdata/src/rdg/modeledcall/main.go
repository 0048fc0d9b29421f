package main

type pair struct {
	a int32
	b byte
	c byte
}

func copyBytes(dst, src *byte, n uintptr) {}

var p pair

func h() {
	var src [8]byte
	copyBytes(&p.b, &src[0], 8)
}

func main() {
	h()
}
