// Package searchpad provides an embedded Go client for searchpad
// collection search: semantic, filter-only, raw-vector, and generative
// question answering over a Qdrant collection.
//
//	client, _ := searchpad.New(
//	    searchpad.WithQdrant("https://localhost:6334", ""),
//	    searchpad.WithOpenAI(os.Getenv("OPENAI_API_KEY"), ""),
//	    searchpad.WithEmbedding("text-embedding-3-small", 1536),
//	    searchpad.WithAnswerModel("gpt-4o-mini"),
//	)
//	defer client.Close()
//
//	session := client.Session("articles")
//	state, _ := session.Submit(ctx, searchpad.Params{
//	    Collection: "articles",
//	    Mode:       searchpad.ModeSemantic,
//	    Query:      "vector databases",
//	    TopK:       10,
//	})
//	for _, r := range state.Results {
//	    fmt.Println(r.ID())
//	}
//
// Each collection gets its own search session; a new Submit on a
// session supersedes the previous search, and late events from a
// superseded generative stream are discarded.
package searchpad
