package mqtt

import (
	"time"

	"github.com/windycity/chirecs/internal/domain/category"
	domhot "github.com/windycity/chirecs/internal/domain/hotspot"
)

type summaryMessage struct {
	Seq        uint64            `json:"seq"`
	BuiltAt    time.Time         `json:"builtAt"`
	Records    int               `json:"records"`
	Clusters   int               `json:"clusters"`
	Categories []categorySummary `json:"categories"`
}

type categorySummary struct {
	Category string `json:"category"`
	Label    string `json:"label"`
	Clusters int    `json:"clusters"`
	Records  int    `json:"records"`
}

type categoryMessage struct {
	Seq      uint64           `json:"seq"`
	Category string           `json:"category"`
	Color    string           `json:"color"`
	Clusters []clusterMessage `json:"clusters"`
}

type clusterMessage struct {
	Neighborhood string  `json:"neighborhood"`
	Count        int     `json:"count"`
	Lat          float64 `json:"lat"`
	Lng          float64 `json:"lng"`
	Radius       float64 `json:"radius"`
	Scale        float64 `json:"scale"`
}

func toSummary(g *domhot.Generation) summaryMessage {
	msg := summaryMessage{
		Seq:        g.Seq,
		BuiltAt:    g.BuiltAt,
		Records:    g.RecordCount(),
		Clusters:   g.ClusterCount(),
		Categories: make([]categorySummary, 0, len(g.Clusters)),
	}
	for _, cat := range g.Categories() {
		cs := g.Clusters[cat]
		records := 0
		for _, c := range cs {
			records += c.Count()
		}
		msg.Categories = append(msg.Categories, categorySummary{
			Category: string(cat),
			Label:    cat.Label(),
			Clusters: len(cs),
			Records:  records,
		})
	}
	return msg
}

// toCategory always returns a non-nil cluster list so that a category that
// lost all its records overwrites the retained message with an empty one.
func toCategory(g *domhot.Generation, cat category.Category) categoryMessage {
	cs := g.Clusters[cat]
	msg := categoryMessage{
		Seq:      g.Seq,
		Category: string(cat),
		Color:    cat.Color(),
		Clusters: make([]clusterMessage, 0, len(cs)),
	}
	for _, c := range cs {
		msg.Clusters = append(msg.Clusters, clusterMessage{
			Neighborhood: c.Neighborhood,
			Count:        c.Count(),
			Lat:          c.Centroid.Lat,
			Lng:          c.Centroid.Lon,
			Radius:       c.Radius,
			Scale:        c.Scale,
		})
	}
	return msg
}
