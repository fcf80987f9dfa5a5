// Package latom implements a Discord bot that proxies user prompts to a
// generative-text API (Gemini) and a generative-image API (Stability),
// with per-guild configuration managed entirely through chat commands.
//
// Commands are accepted on two surfaces: native slash commands, and
// free-text messages beginning with the guild's configured prefix. Both
// surfaces route to the same small set of handlers: static replies,
// settings reads/writes, the two AI responders, and a help listing.
//
// Key components of the package include:
//
//   - Latom: the main struct that wires configuration, the Discord
//     session, both AI responders and the in-memory registries together.
//   - SettingsRegistry: per-guild bot settings (prefix, AI model,
//     temperature, token limit, persona) with validated field writes.
//   - WelcomeChannels: per-guild welcome channel bindings, used by the
//     member-join notifier.
//   - Gemini / Stability: thin HTTP clients for the two AI providers.
//     Provider faults never escape these responders; failures are
//     returned as user-facing text.
//   - Activity: the shared last-command clock driving the presence
//     heartbeat.
//
// All state is process-lifetime only: a restart loses every registry.
package latom
