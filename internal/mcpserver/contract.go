package mcpserver

import "github.com/starford/rcsgrep/internal/grep"

// FormatCodesURI names the resource documenting grep field codes.
const FormatCodesURI = "rcsgrep://format-codes"

// FormatCodes describes the field codes accepted by the grep_history tool
// and how hits are attributed.
var FormatCodes = `# rcsgrep output format

The ` + "`format`" + ` argument of ` + "`grep_history`" + ` is a string of field codes.
Each hit carries a ` + "`fields`" + ` array with one value per code, in order.
Codes may repeat. The default is ` + "`" + grep.DefaultFormat + "`" + `.

` + "```" + `
` + grep.Legend() + "```" + `

## Attribution

A line is attributed to the revision that introduced it. Author, dates, tags
and log message describe that revision, not the revision being searched, so
an unchanged line reports the same author in every revision it survives in.

## Revisions

Revisions are visited trunk first, oldest to newest; each revision's branches
follow it depth-first. Revision names accept numbers (` + "`1.3`" + `), symbolic tags
(` + "`REL_2`" + `) and branch numbers (` + "`1.2.1`" + `), which select the branch tip.
`
