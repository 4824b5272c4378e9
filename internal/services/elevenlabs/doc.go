// Package elevenlabs is a minimal ElevenLabs text-to-speech client.
//
// Synthesize posts one line of dialogue to /v1/text-to-speech/{voice} with
// fixed voice settings and a seed, requests raw PCM, and returns it wrapped in
// a WAV container. Failures surface as *StatusError; RateLimited reports HTTP
// 429 so the synthesizer can back off. The client performs no retries itself.
package elevenlabs
