// Package mocks provides in-memory test doubles for the ports interfaces.
//
// ArticleStore keeps articles in a map keyed by language and title. Fields
// named xxxFn replace the default behavior of one method, and the call
// counters let tests assert that a collaborator was never written to:
//
//	store := mocks.NewArticleStore()
//	store.Seed("en", "Albert_Einstein", "body")
//	resolver := cachematch.NewResolver(store, matcher, judge, nil)
//	_ = resolver.Resolve(ctx, domain.Query{Text: "albert einstein", Language: "en"})
//	// store.PutCalls.Load() == 0
package mocks
