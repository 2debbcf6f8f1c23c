// Package config loads, normalizes, and validates menuscope configuration.
//
// It supplies defaults matching the conventional working layout (htmls/,
// jsons/, csvs/ next to the names file), expands user paths, reads TOML files,
// loads a .env file from the working directory, and honours environment
// fallbacks for provider API keys such as OPENAI_API_KEY, ANTHROPIC_API_KEY and
// GEMINI_API_KEY.
//
// Always obtain settings through this package so downstream code receives
// absolute paths, canonical log formats, and clear validation errors.
package config
