// Package state provides a lightweight in-memory session store for
// multi-turn Telegram conversations. It keeps the current FSM state tag
// and a bag of partially collected input per user and is intentionally
// transport-agnostic so flow logic can be tested without a bot.
package state
