// Package replicate wraps the Replicate API behind the service's provider
// interfaces: the primary image generation backend, a hosted Real-ESRGAN
// upscaler, and product video generation.
package replicate
