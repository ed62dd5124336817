// Package fixture holds RCS files shared by tests.
package fixture

// TwoRevisions has two trunk revisions; 1.1 replaces the first line of 1.2.
const TwoRevisions = `head	1.2;
access;
symbols
	REL_1:1.1;
locks; strict;
comment	@# @;


1.2
date	2024.01.02.10.00.00;	author bob;	state Exp;
branches;
next	1.1;

1.1
date	99.12.31.23.59.59;	author alice;	state Exp;
branches;
next	;


desc
@sample file
@


1.2
log
@shout, mail bob@@example.com
@
text
@HELLO
world
@


1.1
log
@initial
@
text
@d1 1
a1 1
hello
@
`

// Branching has three trunk revisions with two branches off 1.2.
const Branching = `head	1.3;
access;
symbols
	REL_2:1.3
	FEATURE:1.2.0.2
	BUGFIX:1.2.1
	REL_1_0:1.1;
locks; strict;


1.3
date	2024.03.01.00.00.00;	author carol;	state Exp;
branches;
next	1.2;

1.2
date	2024.02.01.00.00.00;	author bob;	state Exp;
branches
	1.2.1.1
	1.2.2.1;
next	1.1;

1.1
date	2024.01.01.00.00.00;	author alice;	state Exp;
branches;
next	;

1.2.1.1
date	2024.02.10.00.00.00;	author dave;	state Exp;
branches;
next	1.2.1.2;

1.2.1.2
date	2024.02.11.00.00.00;	author dave;	state Exp;
branches;
next	;

1.2.2.1
date	2024.02.20.00.00.00;	author erin;	state Exp;
branches;
next	;


desc
@@


1.3
log
@add epsilon@
text
@BETA
gamma
delta
epsilon
@


1.2
log
@rework@
text
@a0 1
alpha
d4 1
@


1.1
log
@start@
text
@d2 1
a2 1
beta
d4 1
@


1.2.1.1
log
@first fix@
text
@a4 1
fix one
@


1.2.1.2
log
@second fix@
text
@d5 1
a5 1
fix two
@


1.2.2.1
log
@feature@
text
@a4 2
feature fo\
o bar
@
`

// Wrapped is a file where the second physical line of a wrapped line changes in 1.2.
const Wrapped = `head	1.2;
access;
symbols;
locks; strict;


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
@bar@
text
@x = fo\
obar
end
@


1.1
log
@init@
text
@d2 1
a2 1
o
@
`
