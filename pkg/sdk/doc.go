// Package chirecs embeds the chirecs recommendations store and its
// neighborhood hotspot aggregator in a Go program, without the HTTP server.
//
// The client talks to Redis or Valkey directly and keeps its own hotspot
// generation, rebuilt shortly after every mutation made through it.
//
//	client, _ := chirecs.New(ctx, chirecs.WithRedis("localhost:6379", ""))
//	defer client.Close()
//
//	_, _ = client.Recommendations().Seed(ctx, false)
//	snap, _ := client.Hotspots().Refresh(ctx)
//	for _, c := range snap.Categories["cafe"] {
//	    fmt.Println(c.Neighborhood, c.Count, c.Radius)
//	}
//
//	matches, _ := client.Hotspots().Lookup(41.9084, -87.6783)
package chirecs
