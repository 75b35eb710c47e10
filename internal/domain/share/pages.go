package share

import (
	"html/template"
	"regexp"
	"strings"
)

// crawlerRe: allow-list de user agents que leen meta tags.
var crawlerRe = regexp.MustCompile(`(?i)(facebookexternalhit|facebot|twitterbot|linkedinbot|slackbot|slack-imgproxy|discordbot|telegrambot|whatsapp|skypeuripreview|pinterest|redditbot|applebot|googlebot|bingbot|embedly|vkshare|quora link preview|outbrain|tumblr|bitlybot|iframely)`)

func IsCrawler(userAgent string) bool {
	return crawlerRe.MatchString(userAgent)
}

type Kind string

const (
	KindPet      Kind = "pet"
	KindLost     Kind = "lost"
	KindReferral Kind = "referral"
)

// Page son los meta tags de un tipo de link. Las imágenes están pre-hosteadas.
type Page struct {
	Title       string
	Description string
	Image       string
	URL         string
}

type pageMeta struct {
	title       string
	description string
	image       string
}

var metaByKind = map[Kind]pageMeta{
	KindPet: {
		title:       "Meet my pet on PetPort",
		description: "Pet profile, emergency contacts and care info, all in one place.",
		image:       "pet-profile.png",
	},
	KindLost: {
		title:       "LOST PET - Please help bring them home",
		description: "This pet is missing. Open the profile to see where it was last seen and contact the owner.",
		image:       "lost-pet.png",
	},
	KindReferral: {
		title:       "Join PetPort",
		description: "Keep your pet's records, contacts and care instructions ready for any emergency.",
		image:       "referral.png",
	},
}

// redirectDelayMs: los navegadores que no siguen el 302 igual terminan en el SPA.
const redirectDelayMs = 1500

var pageTmpl = template.Must(template.New("share").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<meta name="description" content="{{.Description}}">
<meta property="og:type" content="website">
<meta property="og:site_name" content="PetPort">
<meta property="og:title" content="{{.Title}}">
<meta property="og:description" content="{{.Description}}">
<meta property="og:image" content="{{.Image}}">
<meta property="og:url" content="{{.URL}}">
<meta name="twitter:card" content="summary_large_image">
<meta name="twitter:title" content="{{.Title}}">
<meta name="twitter:description" content="{{.Description}}">
<meta name="twitter:image" content="{{.Image}}">
<link rel="canonical" href="{{.URL}}">
</head>
<body>
<p><a href="{{.URL}}">{{.Title}}</a></p>
<script>setTimeout(function(){window.location.replace({{.URL}});}, {{.DelayMs}});</script>
</body>
</html>
`))

type pageData struct {
	Page
	DelayMs int
}

func buildPage(kind Kind, imageBase, target string) Page {
	m := metaByKind[kind]
	return Page{
		Title:       m.title,
		Description: m.description,
		Image:       strings.TrimRight(imageBase, "/") + "/" + m.image,
		URL:         target,
	}
}
