/*
Package xor provides the cyclic XOR screen used to mask secret payloads.

Note that this is NOT encryption, since it is easily reversible.
This falls squarely under the obfuscation category.

# How it works:

Every byte that passes through a Reader or Writer is XOR'd with one byte of the key.
The key byte used is chosen by the absolute position of the payload byte within the screened stream, so byte i uses key[i % len(key)].
A starting position may be given when only part of a screened stream is being processed.
For example, reversing bytes 10 through 20 of a screened blob requires starting at position 10, which selects the same key bytes used when the blob was produced.

# Important note:

The same key and position must be provided to accurately reverse the process.
Failing to do so will result in garbled data.
*/
package xor
