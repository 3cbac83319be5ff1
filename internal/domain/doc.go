// Package domain contains the core entities of the prompt-to-artifact
// pipeline: prompts, generated artifacts, and the subscription policy
// functions that derive scheduling priority and rate-limit ceilings
// from a user's tier. Entities validate themselves and carry no
// persistence or transport concerns.
package domain
