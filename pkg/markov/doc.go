/*
Package markov provides an order-N Markov chain toolkit for generating
statistically plausible pseudo-words from a wordlist.

A Model is trained from a delimited corpus, optionally with a full backoff
hierarchy and additive (prior) smoothing, and is immutable once built. Trained
models are persisted to a content-addressed cache keyed by a Fingerprint of the
corpus bytes and training parameters, so later invocations with the same inputs
skip training entirely. A Generator ties these together: it resolves a Model
from the cache or trains one, then exposes a Generate method that is safe to
call from any number of goroutines, each with its own random source.
*/
package markov
