package rcs

import "github.com/starford/rcsgrep/internal/testutil/fixture"

const (
	twoRevs   = fixture.TwoRevisions
	branching = fixture.Branching
	wrapped   = fixture.Wrapped
)

// 1.1 deletes past the end of its two-line source.
const badProgram = `head	1.2;
access;
symbols;
locks;


1.2
date	2024.01.02.00.00.00;	author bob;	state Exp;
branches;
next	1.1;

1.1
date	2024.01.01.00.00.00;	author alice;	state Exp;
branches;
next	;


desc
@@


1.2
log
@@
text
@one
two
@


1.1
log
@@
text
@d5 1
@
`

// next points at a revision that is not declared.
const dangling = `head	1.2;
access;
symbols;
locks;


1.2
date	2024.01.02.00.00.00;	author bob;	state Exp;
branches;
next	1.1;


desc
@@


1.2
log
@@
text
@x
@
`
