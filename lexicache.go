// Package lexicache provides a lookup-or-fetch translation cache.
//
// A Dictionary answers a query from its Record Store when a previous lookup
// for the same text and language pair exists, and otherwise fetches the
// translation from a remote provider, normalizes the response into a stable
// numbered display form and persists it for the next lookup.
//
// Basic usage:
//
//	import (
//	    "context"
//	    "github.com/ZaguanLabs/lexicache"
//	    "github.com/ZaguanLabs/lexicache/provider"
//	    "github.com/ZaguanLabs/lexicache/store"
//	)
//
//	func main() {
//	    s, err := store.OpenSQLite("dictionary_cache.db")
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    defer s.Close()
//
//	    d := lexicache.NewDictionary(provider.NewMyMemoryProvider(provider.MyMemoryConfig{}),
//	        lexicache.WithStore(s),
//	    )
//
//	    result, err := d.Lookup(context.Background(), "cat", lexicache.EnToZh)
//	    if err != nil {
//	        log.Fatal(err)
//	    }
//	    fmt.Println(result.Display) // 1. 猫
//	}
package lexicache
