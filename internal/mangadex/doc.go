// Package mangadex talks to the MangaDex API and resolves the canonical
// chapter queue for a manga.
//
// # Client
//
// Client wraps the three endpoints the pipeline needs:
//
//	client := mangadex.NewClient(logger)
//
//	pages, err := client.ResolveChapterPages(ctx, chapterID, false)
//	title, err := client.ResolveMangaTitle(ctx, mangaID)
//
// Network and HTTP failures surface as *TransportError; responses missing
// required fields surface as plain errors. Neither aborts the pipeline.
//
// # Resolver
//
// Resolver paginates the chapter feed, deduplicates competing uploads per
// chapter number (highest version wins, ties broken by newest creation
// time), and sorts the survivors by numeric chapter number ascending:
//
//	resolver := mangadex.NewResolver(client, 100, logger)
//	queue, err := resolver.Resolve(ctx, mangaID, "en")
//
// Raw JSON shapes live in the dto subpackage; everything downstream of
// the resolver works with model.Chapter only.
package mangadex
