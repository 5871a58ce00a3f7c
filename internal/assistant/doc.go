// Package assistant provides the text classifiers and answer generators
// behind the command router and the voice assistant, plus the speech
// service client.
//
// Two providers satisfy command.Classifier and voice.Answerer:
//
//   - Azure: Azure OpenAI chat completions with fixed prompts
//   - Keyword: an offline matcher over device names and verbs
//
// Both return labels from the same vocabulary: "command-query" or
// "general-query" for intents, and "<device>-control-<on|off|N>",
// "leaving" or "no-access" for commands.
package assistant
