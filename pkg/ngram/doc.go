/*
Package ngram generates new symbol sequences that statistically resemble a
training corpus, by walking a directed graph of overlapping n-grams instead
of running an unconstrained Markov chain.

Training sequences are scanned into a frequency table of n-grams, tagged by
whether they occurred at the start, the end, or the middle of a sequence.
A percentile band is then applied to each of those three roles, and only the
n-grams inside the band become graph vertices. Bands can also be set at
shorter n-gram lengths, in which case an n-gram additionally needs all of
its shorter sub-n-grams inside their length's band to qualify. Generated sequences are random
walks from a start-qualifying vertex to an end-qualifying vertex, so every
window of the output is an n-gram the corpus actually contains, and the
first and last windows come specifically from observed sequence starts and
ends.

The package is generic over any ordered, comparable symbol type, so it works
equally for generating words from letters or sentences from words. Models
are immutable once built and safe for concurrent sampling; each Sampler
carries its own seedable random source.

For a complete usage example, see the README.md file.
*/
package ngram
