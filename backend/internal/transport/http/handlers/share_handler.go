package handlers

import "net/http"

const sharePage = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>CastLaunchEarn Earn Boost</title>
<meta property="og:title" content="CastLaunchEarn Earn Boost">
<meta property="og:description" content="Manage coins boost stats and track leaderboards on Farcaster">
<meta property="og:image" content="https://cast-launch-earn.vercel.app/og-image.png">
<meta property="og:url" content="https://cast-launch-earn.vercel.app/share">
<meta name="twitter:card" content="summary_large_image">
</head>
<body></body>
</html>
`

// SharePage serves the Open Graph card used when the app link is cast.
func SharePage(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "public, max-age=0, must-revalidate")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(sharePage))
}
