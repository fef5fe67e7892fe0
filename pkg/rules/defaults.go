package rules

import "sync"

var (
	defaultOnce sync.Once
	defaultSet  *RuleSet
)

// DefaultSet returns the built-in rule set, compiled once.
func DefaultSet() *RuleSet {
	defaultOnce.Do(func() {
		defaultSet = buildDefaults()
	})
	return defaultSet
}

func buildDefaults() *RuleSet {
	rs := &RuleSet{Version: "builtin"}

	// ---- PII ----------------------------------------------------------------

	rs.PII = []Pattern{
		mustCompile("email", "email",
			`\b[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}\b`, false, false),
		mustCompile("ssn", "ssn",
			`\b\d{3}-\d{2}-\d{4}\b`, true, false),
		mustCompile("credit_card", "credit_card",
			`\b(?:\d{4}[\- ]?){3}\d{4}\b`, false, false),
		mustCompile("phone", "phone",
			`\b(?:\+?1[\-. ]?)?\(?\d{3}\)?[\-. ]?\d{3}[\-. ]?\d{4}\b`, false, false),
		mustCompile("street_address", "address",
			`(?i)\b\d{1,5}\s+[A-Za-z0-9.\- ]+\s(?:street|st|avenue|ave|road|rd|boulevard|blvd|drive|dr|lane|ln|court|ct|way)\b`, false, false),
	}

	// ---- Adversarial --------------------------------------------------------

	rs.Adversarial = []Group{
		{
			Name:   "prompt_injection",
			Weight: 0.25,
			Patterns: []Pattern{
				mustCompile("ignore_previous", "prompt_injection",
					`(?i)\bignore\s+(?:all\s+|any\s+)?(?:previous|prior|above|earlier)\s+(?:instructions|prompts|directions|rules|context)\b`, false, true),
				mustCompile("disregard_instructions", "prompt_injection",
					`(?i)\bdisregard\s+(?:all\s+)?(?:previous|prior|your)\s+(?:instructions|prompts|rules|guidelines)\b`, false, true),
				mustCompile("forget_instructions", "prompt_injection",
					`(?i)\bforget\s+(?:everything|all|your)\s+(?:you\s+(?:were\s+told|know)|instructions|training|rules)\b`, false, false),
				mustCompile("reveal_system_prompt", "prompt_injection",
					`(?i)\b(?:reveal|show|print|repeat|display|output)\b.{0,40}\bsystem\s+prompt\b`, false, true),
				mustCompile("new_instructions", "prompt_injection",
					`(?i)\b(?:your\s+)?new\s+instructions\s+(?:are|follow)\b`, false, false),
				mustCompile("override_system", "prompt_injection",
					`(?i)\boverride\s+(?:your\s+)?(?:system|safety|previous)\s+(?:settings|instructions|rules|protocols)\b`, false, false),
			},
		},
		{
			Name:   "jailbreak",
			Weight: 0.25,
			Patterns: []Pattern{
				mustCompile("do_anything_now", "jailbreak",
					`(?i)\b(?:do\s+anything\s+now|\bDAN\s+mode\b)`, false, true),
				mustCompile("developer_mode", "jailbreak",
					`(?i)\bdeveloper\s+mode\b`, false, true),
				mustCompile("jailbreak_word", "jailbreak",
					`(?i)\bjail\s?break(?:ing|er)?\b`, false, false),
				mustCompile("pretend_unrestricted", "jailbreak",
					`(?i)\b(?:pretend|imagine|act\s+as\s+if)\b.{0,60}\b(?:no\s+(?:restrictions|rules|limits|filters)|unrestricted|unfiltered)\b`, false, false),
				mustCompile("roleplay_override", "jailbreak",
					`(?i)\b(?:roleplay|role\s*-?\s*play)\s+as\b.{0,60}\b(?:evil|unrestricted|without\s+(?:rules|limits))`, false, false),
				mustCompile("you_are_now", "jailbreak",
					`(?i)\byou\s+are\s+(?:now|no\s+longer)\s+(?:an?\s+)?(?:unrestricted|uncensored|free)\b`, false, false),
			},
		},
		{
			Name:   "obfuscation",
			Weight: 0.15,
			Patterns: []Pattern{
				mustCompile("base64_blob", "obfuscation",
					`\b[A-Za-z0-9+/]{40,}={0,2}\b`, false, false),
				mustCompile("hex_escape_run", "obfuscation",
					`(?:\\x[0-9a-fA-F]{2}){4,}`, false, false),
				mustCompile("unicode_escape_run", "obfuscation",
					`(?:\\u[0-9a-fA-F]{4}){3,}`, false, false),
				mustCompile("zero_width", "obfuscation",
					"[​‌‍⁠]", false, false),
				mustCompile("leetspeak_marker", "obfuscation",
					`(?i)\b(?:1gn0re|pr0mpt|sy5tem|in5truct|byp4ss)\b`, false, false),
			},
		},
		{
			Name:   "social_engineering",
			Weight: 0.15,
			Patterns: []Pattern{
				mustCompile("authority_claim", "social_engineering",
					`(?i)\b(?:i\s+am|as)\s+(?:your\s+)?(?:developer|creator|administrator|admin|supervisor|owner)\b`, false, false),
				mustCompile("urgency_pressure", "social_engineering",
					`(?i)\b(?:this\s+is\s+(?:urgent|an?\s+emergency)|you\s+must\s+comply|immediately\s+or\s+else)\b`, false, false),
				mustCompile("educational_pretext", "social_engineering",
					`(?i)\b(?:for|purely)\s+(?:educational|research|academic)\s+purposes\s+only\b`, false, false),
				mustCompile("hypothetical_pretext", "social_engineering",
					`(?i)\bhypothetically(?:\s+speaking)?\b.{0,40}\b(?:how\s+(?:would|could|to)|what\s+if)\b`, false, false),
			},
		},
		{
			Name:   "encoding_attacks",
			Weight: 0.10,
			Patterns: []Pattern{
				mustCompile("decode_request", "encoding_attacks",
					`(?i)\b(?:decode|decrypt|unscramble)\s+(?:this|the\s+following)\b`, false, false),
				mustCompile("base64_mention", "encoding_attacks",
					`(?i)\bbase\s?64\b`, false, false),
				mustCompile("rot13_mention", "encoding_attacks",
					`(?i)\brot\s?13\b`, false, false),
				mustCompile("char_code_request", "encoding_attacks",
					`(?i)\b(?:ascii|char(?:acter)?)\s+codes?\b`, false, false),
			},
		},
	}

	// ---- Bias lexicons ------------------------------------------------------

	rs.BiasLexicons = map[string][]string{
		"gender": {
			"all women", "all men", "women can't", "men can't", "women are always",
			"men are always", "typical woman", "typical man", "women belong",
			"men are better at", "women are better at", "like a girl",
		},
		"racial": {
			"those people", "you people", "their kind", "all immigrants",
			"typical of them", "they all steal", "they're all lazy",
			"go back to where", "not like us",
		},
		"cultural": {
			"third-world", "third world country", "uncivilized", "backwards culture",
			"primitive people", "savages", "exotic foreigner", "they don't belong",
		},
		"age": {
			"ok boomer", "all millennials", "old people can't", "too old to",
			"young people are lazy", "senile",
		},
		"religious": {
			"all muslims", "all christians", "all jews", "religious fanatics",
			"godless heathens", "infidels",
		},
	}

	// ---- Hallucination proxies ----------------------------------------------

	rs.Hallucination = []Pattern{
		mustCompile("uncited_studies", "unverifiable_claim",
			`(?i)\bstudies\s+(?:show|prove|confirm)\b`, false, false),
		mustCompile("consensus_claim", "unverifiable_claim",
			`(?i)\b(?:scientists|experts|researchers|everyone)\s+(?:agree|know|confirm)\b`, false, false),
		mustCompile("wellknown_fact", "unverifiable_claim",
			`(?i)\bit\s+is\s+a\s+(?:well[\- ]known|proven|undeniable)\s+fact\b`, false, false),
		mustCompile("absolute_certainty", "absolute_claim",
			`(?i)\b(?:100%\s+(?:guaranteed|certain|accurate)|always\s+works|never\s+fails|absolutely\s+certain)\b`, false, false),
		mustCompile("fabricated_citation", "fabricated_citation",
			`(?i)\baccording\s+to\s+(?:a\s+)?(?:recent\s+)?(?:study|report|article)\b(?:[^,.]{0,40})$`, false, false),
	}

	return rs
}
