// Package segment splits a document into contiguous sub-documents.
//
// A page starts a new segment when a title-like text run appears near its
// top. Short segments are folded into their neighbors, and the resulting
// segments always partition the page range of a non-empty document.
// Each segment is labelled with a content type by a keyword classifier.
package segment
