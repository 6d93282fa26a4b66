package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/dd0wney/cluso-rewrite/pkg/attrs"
	"github.com/dd0wney/cluso-rewrite/pkg/config"
	"github.com/dd0wney/cluso-rewrite/pkg/logging"
	"github.com/dd0wney/cluso-rewrite/pkg/metrics"
	"github.com/dd0wney/cluso-rewrite/pkg/rewrite"
	"github.com/dd0wney/cluso-rewrite/pkg/storage"
)

func main() {
	configPath := flag.String("config", "", "path to a YAML config file")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			log.Fatalf("config: %v", err)
		}
		cfg = loaded
	}

	logger := logging.NewJSONLogger(os.Stderr, logging.ParseLevel(cfg.LogLevel))
	reg := metrics.NewRegistry()

	st := storage.NewStore()
	engine := rewrite.NewEngine(st, cfg, logger, reg)

	fmt.Printf("🔥 Cluso Rewrite Demo\n")
	fmt.Printf("=====================\n\n")

	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Step 1: Build a graph\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	buildGraph(st)

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Step 2: Clone a node\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	demoClone(engine)

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Step 3: Merge two nodes\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	demoMerge(engine)

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Step 4: Match a pattern\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	demoMatch(engine)

	fmt.Printf("\n━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	fmt.Printf("📊 Step 5: Metrics\n")
	fmt.Printf("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	dumpMetrics(reg)

	fmt.Printf("\n✅ Done: %d nodes, %d edges\n", st.NodeCount(), st.EdgeCount())
}

func buildGraph(st *storage.Store) {
	fatalIf(st.AddGraph("shapes"))

	circle, err := st.CreateNode("shapes", "circle",
		attrs.Dict{"color": attrs.Strings("red", "blue")})
	fatalIf(err)
	square, err := st.CreateNode("shapes", "square",
		attrs.Dict{"color": attrs.Strings("blue", "green")})
	fatalIf(err)
	triangle, err := st.CreateNode("shapes", "triangle",
		attrs.Dict{"sides": attrs.Ints(3)})
	fatalIf(err)

	_, err = st.CreateEdge(circle.ID, square.ID, storage.KindEdge,
		attrs.Dict{"weight": attrs.Ints(5)})
	fatalIf(err)
	_, err = st.CreateEdge(square.ID, triangle.ID, storage.KindEdge, nil)
	fatalIf(err)
	_, err = st.CreateEdge(triangle.ID, triangle.ID, storage.KindEdge,
		attrs.Dict{"weight": attrs.Ints(1)})
	fatalIf(err)

	fmt.Printf("✅ Created shapes graph: circle, square, triangle\n")
}

func demoClone(engine *rewrite.Engine) {
	res, err := engine.Clone(rewrite.CloneRequest{
		Graph: "shapes",
		Node:  "circle",
		Count: 2,
	})
	fatalIf(err)
	fmt.Printf("✅ Cloned circle into: %v\n", res.Clones)
}

func demoMerge(engine *rewrite.Engine) {
	res, err := engine.Merge(rewrite.MergeRequest{
		Graph: "shapes",
		Nodes: []string{"circle", "square"},
		Name:  "round_square",
	})
	fatalIf(err)
	fmt.Printf("✅ Merged circle and square into: %s\n", res.Identity)
}

func demoMatch(engine *rewrite.Engine) {
	pattern := rewrite.NewPattern().
		AddNode("from", nil).
		AddNode("to", nil).
		AddEdge("from", "to")

	stream, err := engine.Match("shapes", pattern, rewrite.MatchOptions{})
	fatalIf(err)
	for _, inst := range stream.Collect() {
		fmt.Printf("✅ Instance: from=%s to=%s\n", inst["from"], inst["to"])
	}
}

func dumpMetrics(reg *metrics.Registry) {
	families, err := reg.Gather().Gather()
	fatalIf(err)
	for _, mf := range families {
		fmt.Printf("  %s\n", mf.GetName())
	}
}

func fatalIf(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
