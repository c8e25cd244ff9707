package document

import "strings"

const pageSeparator = "\n\n"

// Aggregate merges an ordered batch of per-page inference results into a
// single document result. It is pure and total: per-page failures are carried
// as data on the matching PageMeta, and only a completely empty batch (total
// loading failure upstream) produces a document-level error.
func Aggregate(results []PageResult) DocumentResult {
	if len(results) == 0 {
		return DocumentResult{
			Structure: []Chunk{},
			Pages:     []PageMeta{},
			Error:     MsgNoPages,
		}
	}

	allMarkdown := make([]string, 0, len(results))
	allHTML := make([]string, 0, len(results))
	pages := make([]PageMeta, 0, len(results))
	structure := []Chunk{}
	totalTokens := 0

	for i, res := range results {
		pageNum := i + 1

		allMarkdown = append(allMarkdown, res.Markdown)
		allHTML = append(allHTML, res.HTML)
		if res.TokenCount != nil {
			totalTokens += *res.TokenCount
		}

		pages = append(pages, PageMeta{
			PageNum:    pageNum,
			TokenCount: res.TokenCount,
			NumChunks:  len(res.Chunks),
			NumImages:  len(res.Images),
			Error:      res.Error,
		})

		for _, raw := range res.Chunks {
			structure = append(structure, NormalizeChunk(raw, pageNum))
		}
	}

	return DocumentResult{
		Markdown:        strings.Join(allMarkdown, pageSeparator),
		HTML:            strings.Join(allHTML, pageSeparator),
		Structure:       structure,
		Pages:           pages,
		NumPages:        len(results),
		TotalTokenCount: totalTokens,
	}
}
