// Command sv is the snipvault CLI: a personal snippet store with a
// canonical local collection, a flat backup mirror for cloud-synced
// directories, and per-snippet gist replicas.
package main

func main() {
	Execute()
}
