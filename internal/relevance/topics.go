// Copyright (c) 2026 Bezal John Benny
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package relevance

// Topic describes one area of expertise the classifier scores queries
// against. Configuration data, not logic: edit the table, not the gate.
type Topic struct {
	Key         string
	Name        string
	Description string
}

// Topics is the ordered set of areas a query can match.
var Topics = []Topic{
	{
		Key:  "artificial_intelligence",
		Name: "Artificial Intelligence & Machine Learning",
		Description: "AI, machine learning, automation, chatbots, neural networks, deep learning, " +
			"predictive analytics, generative AI, intelligent systems, cognitive computing, " +
			"smart technology, robotics",
	},
	{
		Key:  "web_development",
		Name: "Web Development & Design",
		Description: "Website development, front-end/back-end development, UX/UI design, responsive " +
			"design, web applications, APIs, CMS, e-commerce, web optimization, accessibility, " +
			"graphic design, digital design",
	},
	{
		Key:  "digital_marketing",
		Name: "Digital Marketing & SEO",
		Description: "Digital marketing, social media marketing, SEO, content marketing, email " +
			"marketing, PPC, influencer marketing, affiliate marketing, marketing strategy, " +
			"marketing automation, brand strategy, marketing analytics",
	},
	{
		Key:  "business_technology",
		Name: "Business Technology & Software",
		Description: "SaaS, cloud computing, business software, enterprise solutions, data analytics, " +
			"business intelligence, workflow automation, integration, scalability, digital " +
			"transformation, business automation",
	},
	{
		Key:  "mobile_technology",
		Name: "Mobile Technology & Apps",
		Description: "Mobile app development, smartphone apps, mobile optimization, iOS, Android, " +
			"responsive design, mobile marketing, app store optimization, mobile user experience",
	},
}
