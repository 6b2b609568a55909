// Package docx provides a document host for Office Open XML word documents.
//
// Open flattens the document body into plain text with one paragraph per
// line and serves all host operations through an embedded in-memory
// document. Save writes the original package back out with the edits
// spliced into word/document.xml: untouched paragraphs and all sibling
// parts (styles, numbering, headers, media) are preserved verbatim, while
// edited paragraphs get tracked edits rendered as w:ins/w:del revisions
// and manual markup as run properties.
package docx
