// Command vtypectl inspects memory images through vtype type tables.
package main

func main() {
	execute()
}
