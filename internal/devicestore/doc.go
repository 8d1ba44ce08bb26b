// Package devicestore keeps an in-memory, observable copy of the device
// collection held by the backend.
//
// The Store is the single authoritative collection on the client side. It
// is always sorted by name, and two derived views are recomputed from it on
// every change:
//   - Filtered: the collection restricted to one protocol, or all of it
//   - Groups: either one "all" list or a vnc/rdp partition
//
// Mutations go to the backend first. The collection only changes once the
// backend has confirmed, and a failed call leaves it untouched.
//
// Usage:
//
//	client, _ := apiclient.New(baseURL)
//	store := devicestore.New(client)
//	if err := store.Initialize(ctx); err != nil {
//	    return err
//	}
//	unsubscribe := store.Subscribe(func(v devicestore.View) { render(v) })
//	defer unsubscribe()
package devicestore
