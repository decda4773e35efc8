// Package ocr provides the text recognition engines used for plain-text
// widgets.
//
// Every engine implements Engine: it takes one encoded crop (PNG or JPEG)
// and returns text fragments in reading order. The caller joins them.
//
// # Engines
//
//   - Tesseract: local recognition through gosseract/v2, one fragment per
//     text line
//   - Remote: the Baidu general_basic cloud API, one fragment per entry of
//     words_result
//
// NewLimited wraps either one with a golang.org/x/time/rate limiter. Cloud
// OCR quotas are per second and per day.
//
// # Prerequisites
//
// Tesseract must be installed on the system:
//   - Ubuntu/Debian: apt-get install tesseract-ocr libtesseract-dev
//   - macOS: brew install tesseract
//
// Language data files are required for each language:
//   - Ubuntu/Debian: apt-get install tesseract-ocr-eng (for English)
//   - Other languages: tesseract-ocr-<lang> packages
//
// # Preprocessing
//
// Widget crops are small. Preprocess can upscale, drop color and raise
// contrast (via anthonynsimon/bild) before Tesseract sees the image, which
// often turns an empty result into a usable one for 10-12px UI fonts.
//
// # Cancellation
//
// Tesseract calls are cgo and cannot be interrupted. Recognize returns as soon
// as its context ends and lets the call finish in the background.
package ocr
