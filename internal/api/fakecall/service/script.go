package fakecallService

import "PanicButton/internal/entity"

type script struct {
	Name    string
	Opening string
	Replies []string
}

// scripts are used when no language model is configured. Every supported
// profile language has one.
var scripts = map[string]script{
	"en": {
		Name:    "English",
		Opening: "Hey, it's me! I've been trying to reach you. Where are you right now? I really need you to come meet me.",
		Replies: []string{
			"Okay, I'm glad you picked up. Can you head over now? It's kind of important.",
			"I'll stay on the line with you. Just start walking toward the exit.",
			"Perfect. Text me when you're outside and I'll come get you.",
		},
	},
	"es": {
		Name:    "Spanish",
		Opening: "¡Hola, soy yo! Te he estado llamando. ¿Dónde estás ahora? Necesito que vengas a verme.",
		Replies: []string{
			"Qué bueno que contestaste. ¿Puedes venir ahora? Es algo importante.",
			"Me quedo en la línea contigo. Empieza a caminar hacia la salida.",
			"Perfecto. Escríbeme cuando estés afuera y paso por ti.",
		},
	},
	"fr": {
		Name:    "French",
		Opening: "Salut, c'est moi ! J'essaie de te joindre. Tu es où là ? J'ai vraiment besoin que tu viennes me rejoindre.",
		Replies: []string{
			"Je suis content que tu répondes. Tu peux venir maintenant ? C'est important.",
			"Je reste en ligne avec toi. Dirige-toi vers la sortie.",
			"Parfait. Envoie-moi un message quand tu es dehors et je viens te chercher.",
		},
	},
	"de": {
		Name:    "German",
		Opening: "Hey, ich bin's! Ich versuche dich schon die ganze Zeit zu erreichen. Wo bist du gerade? Du musst unbedingt zu mir kommen.",
		Replies: []string{
			"Gut, dass du rangehst. Kannst du jetzt gleich losgehen? Es ist wichtig.",
			"Ich bleibe am Telefon. Geh einfach schon mal Richtung Ausgang.",
			"Super. Schreib mir, wenn du draußen bist, dann hole ich dich ab.",
		},
	},
	"it": {
		Name:    "Italian",
		Opening: "Ciao, sono io! Ti sto cercando da un po'. Dove sei adesso? Ho davvero bisogno che tu venga da me.",
		Replies: []string{
			"Meno male che hai risposto. Puoi venire adesso? È importante.",
			"Resto in linea con te. Inizia ad andare verso l'uscita.",
			"Perfetto. Scrivimi quando sei fuori e ti vengo a prendere.",
		},
	},
	"pt": {
		Name:    "Portuguese",
		Opening: "Olá, sou eu! Estou a tentar falar contigo. Onde estás agora? Preciso mesmo que venhas ter comigo.",
		Replies: []string{
			"Ainda bem que atendeste. Podes vir agora? É importante.",
			"Fico em linha contigo. Começa a ir em direção à saída.",
			"Perfeito. Manda-me mensagem quando estiveres lá fora e vou buscar-te.",
		},
	},
	"zh": {
		Name:    "Chinese",
		Opening: "喂，是我！我一直在找你。你现在在哪儿？我真的需要你过来一趟。",
		Replies: []string{
			"太好了，你终于接了。你现在能过来吗？挺重要的。",
			"我一直在电话这边陪着你，你先往出口走。",
			"好的，到外面了给我发消息，我去接你。",
		},
	},
	"ja": {
		Name:    "Japanese",
		Opening: "もしもし、私だよ！ずっと連絡してたんだ。今どこにいるの？ちょっと来てほしいんだけど。",
		Replies: []string{
			"出てくれてよかった。今から来られる？大事な話なんだ。",
			"このまま電話つないでおくね。とりあえず出口の方に向かって。",
			"よかった。外に出たらメッセージして、迎えに行くから。",
		},
	},
	"ko": {
		Name:    "Korean",
		Opening: "여보세요, 나야! 계속 연락했었어. 지금 어디야? 나 좀 만나러 와 줘야 할 것 같아.",
		Replies: []string{
			"전화 받아서 다행이다. 지금 올 수 있어? 중요한 일이야.",
			"계속 통화하고 있을게. 일단 출구 쪽으로 걸어가.",
			"좋아. 밖에 나오면 문자해, 데리러 갈게.",
		},
	},
	"ar": {
		Name:    "Arabic",
		Opening: "مرحبا، أنا! كنت أحاول الاتصال بك. أين أنت الآن؟ أحتاج أن تأتي لمقابلتي.",
		Replies: []string{
			"الحمد لله أنك رددت. هل يمكنك المجيء الآن؟ الأمر مهم.",
			"سأبقى معك على الخط. ابدأ بالمشي نحو المخرج.",
			"ممتاز. راسلني عندما تصبح في الخارج وسآتي لأخذك.",
		},
	},
	"hi": {
		Name:    "Hindi",
		Opening: "हेलो, मैं बोल रहा हूँ! कब से फ़ोन कर रहा था। तुम अभी कहाँ हो? मुझे तुमसे तुरंत मिलना है।",
		Replies: []string{
			"अच्छा हुआ तुमने फ़ोन उठाया। क्या तुम अभी आ सकते हो? ज़रूरी बात है।",
			"मैं लाइन पर हूँ। तुम बाहर निकलने की तरफ़ चलना शुरू करो।",
			"बढ़िया। बाहर पहुँचकर मुझे मैसेज करना, मैं तुम्हें लेने आ जाऊँगा।",
		},
	},
	"ru": {
		Name:    "Russian",
		Opening: "Привет, это я! Никак не могу до тебя дозвониться. Ты сейчас где? Мне очень нужно, чтобы ты приехал ко мне.",
		Replies: []string{
			"Хорошо, что ты взял трубку. Можешь выйти прямо сейчас? Это важно.",
			"Я побуду на линии. Просто иди к выходу.",
			"Отлично. Напиши, когда будешь на улице, я тебя заберу.",
		},
	},
}

func scriptFor(language string) (string, script) {
	if s, ok := scripts[language]; ok && entity.IsSupportedLanguage(language) {
		return language, s
	}
	return entity.DefaultLanguage, scripts[entity.DefaultLanguage]
}
