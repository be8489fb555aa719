/*
Package textgen turns raw text into training sequences for the ngram engine
and renders generated sequences back into display text.

A Splitter cuts input into sequences with a configurable delimiter regex:
word splitting produces one sequence per word with single-character symbols,
sentence splitting produces one sequence per sentence with word symbols.
Inputs may also carry per-line frequencies (e.g. census name lists) via a
grouping pattern.

A Renderer joins generated symbols with a separator and optionally
capitalizes and terminates the result.
*/
package textgen
