// Package passes is a fixture for the stock go/analysis passes.
package passes

import "fmt"

func redundant(x int) bool {
	return x == 1 || x == 1 // Noncompliant
}

func distinct(x int) bool {
	return x == 1 || x == 2
}

func greet(name string) {
	fmt.Printf("hello %d\n", name) // Noncompliant
	fmt.Printf("hello %s\n", name)
}

func dead() {
	return
	fmt.Println("never") // Noncompliant
}
