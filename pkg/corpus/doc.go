/*
Package corpus persists named training corpora in a SQLite database.

A corpus is a set of weighted token sequences. Tokens are interned into a
shared vocabulary table and sequences are stored as space-joined token ID
strings, so repeated sequences collapse into a single row whose frequency
accumulates. The Store loads sequences back out in a form ready to feed an
n-gram model.
*/
package corpus
