/*
Package obfs provides the codec used to embed named secrets in generated source code without storing them in clear text.

Note that this is NOT encryption, since anyone holding the generated artifact holds the key as well.
This falls squarely under the obfuscation category, and is intended to defeat passive inspection of a binary (think strings or a hex dump) only.

# How it works:

A 32 byte Key is derived from a passphrase with a 256-bit hash (SHA-256 unless another Hash is requested).
Non-empty secrets are sorted by name and their UTF-8 bytes are concatenated into one buffer, with each secret's offset and length recorded as a PackedSecret.
The buffer is XOR screened with the key, cycling through the key by absolute buffer position, producing the encrypted blob.
Each secret's byte range is packed into a single RangeToken, with the lower bound in the low 32 bits and the upper bound in the high 32 bits, masked with Mask.

# Decoding:

Decode reverses a RangeToken into its bounds, slices the blob, and screens the slice again starting at the lower bound's key position.
Generated code carries an equivalent routine, so the key, blob, and tokens are all that's needed to recover a secret at run time.

# General guidelines:
  - Sorting makes output deterministic: the same secrets and passphrase always produce the same key, blob, and tokens.
  - Supplying no passphrase is fine, RandomPassphrase gives each run a fresh key.
  - Total secret data must fit in 32 bits of offset, which is checked rather than silently truncated.
*/
package obfs
