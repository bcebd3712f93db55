package client

// derpibooruCharacters are canon character tags, lower case. Derpibooru does
// not report tag categories in search results, so these are matched by name.
var derpibooruCharacters = map[string]struct{}{
	"ahuizotl":                 {},
	"apple bloom":              {},
	"apple rose":               {},
	"applejack":                {},
	"aunt holiday":             {},
	"auntie lofty":             {},
	"autumn blaze":             {},
	"babs seed":                {},
	"berry punch":              {},
	"big macintosh":            {},
	"blossomforth":             {},
	"bon bon":                  {},
	"braeburn":                 {},
	"bright mac":               {},
	"bulk biceps":              {},
	"burnt oak":                {},
	"button mash":              {},
	"capper dapperpaws":        {},
	"captain celaeno":          {},
	"carrot top":               {},
	"cheerilee":                {},
	"cheese sandwich":          {},
	"chrysalis":                {},
	"cloudchaser":              {},
	"coco pommel":              {},
	"coloratura":               {},
	"cozy glow":                {},
	"cranky doodle donkey":     {},
	"daring do":                {},
	"derpy hooves":             {},
	"diamond tiara":            {},
	"dinky hooves":             {},
	"discord":                  {},
	"doctor whooves":           {},
	"double diamond":           {},
	"flash sentry":             {},
	"fleetfoot":                {},
	"flitter":                  {},
	"flurry heart":             {},
	"fluttershy":               {},
	"gabby":                    {},
	"gallus":                   {},
	"gilda":                    {},
	"granny smith":             {},
	"grubber":                  {},
	"hitch trailblazer":        {},
	"hoity toity":              {},
	"izzy moonbow":             {},
	"king sombra":              {},
	"limestone pie":            {},
	"lightning dust":           {},
	"lord tirek":               {},
	"lyra heartstrings":        {},
	"mane allgood":             {},
	"marble pie":               {},
	"maud pie":                 {},
	"mayor mare":               {},
	"misty brightdawn":         {},
	"minuette":                 {},
	"moondancer":               {},
	"mrs. cake":                {},
	"mr. cake":                 {},
	"nightmare moon":           {},
	"ocellus":                  {},
	"octavia melody":           {},
	"opalescence":              {},
	"owlowiscious":             {},
	"photo finish":             {},
	"pinkie pie":               {},
	"pipp petals":              {},
	"pound cake":               {},
	"prince blueblood":         {},
	"princess cadance":         {},
	"princess celestia":        {},
	"princess ember":           {},
	"princess flurry heart":    {},
	"princess luna":            {},
	"princess skystar":         {},
	"pumpkin cake":             {},
	"queen chrysalis":          {},
	"queen novo":               {},
	"rainbow dash":             {},
	"rarity":                   {},
	"roseluck":                 {},
	"sandbar":                  {},
	"sapphire shores":          {},
	"scootaloo":                {},
	"shining armor":            {},
	"silver spoon":             {},
	"silverstream":             {},
	"smolder":                  {},
	"snails":                   {},
	"snips":                    {},
	"soarin'":                  {},
	"spike":                    {},
	"spitfire":                 {},
	"spoiled rich":             {},
	"starlight glimmer":        {},
	"stellar flare":            {},
	"sunburst":                 {},
	"sunny starscout":          {},
	"sunset shimmer":           {},
	"sunshower raindrops":      {},
	"sweetie belle":            {},
	"tempest shadow":           {},
	"thorax":                   {},
	"thunderlane":              {},
	"tree hugger":              {},
	"trixie":                   {},
	"twilight sparkle":         {},
	"twilight velvet":          {},
	"twist":                    {},
	"vinyl scratch":            {},
	"zecora":                   {},
	"zephyr breeze":            {},
	"zipp storm":               {},
	"yona":                     {},
	"sugar belle":              {},
	"trouble shoes":            {},
	"pear butter":              {},
	"grand pear":               {},
	"fancypants":               {},
	"fleur-de-lis":             {},
	"night light":              {},
	"igneous rock pie":         {},
	"cloudy quartz":            {},
	"mudbriar":                 {},
	"sky stinger":              {},
	"vapor trail":              {},
	"somnambula":               {},
	"star swirl the bearded":   {},
	"stygian":                  {},
	"mistmane":                 {},
	"rockhoof":                 {},
	"flash magnus":             {},
	"meadowbrook":              {},
	"grogar":                   {},
	"the storm king":           {},
	"adagio dazzle":            {},
	"aria blaze":               {},
	"sonata dusk":              {},
	"wallflower blush":         {},
	"juniper montage":          {},
	"gloriosa daisy":           {},
	"sci-twi":                  {},
	"princess cadance (human)": {},
}
